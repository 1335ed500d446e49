// Package letter is the research letter and blog workflow: research a
// topic once, restructure it twice (email letter and blog post), then
// produce both publication-ready texts.
package letter

// Reference is a cited source.
type Reference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ResearchLetter is the shape of both the research hand-off and the
// letter-plan hand-off (the plan restructures the same fields for email).
type ResearchLetter struct {
	Introduction string      `json:"introduction"`
	Body         string      `json:"body"`
	Conclusion   string      `json:"conclusion"`
	References   []Reference `json:"references"`
}

// BlogPost is the blog-plan hand-off.
type BlogPost struct {
	Title        string      `json:"title"`
	Introduction string      `json:"introduction"`
	Background   string      `json:"background"`
	Body         string      `json:"body"`
	Conclusion   string      `json:"conclusion"`
	References   []Reference `json:"references"`
}

// FinalAssets is the produce hand-off: both texts ready to publish.
type FinalAssets struct {
	LetterContent string `json:"letter_content"`
	BlogContent   string `json:"blog_content"`
}
