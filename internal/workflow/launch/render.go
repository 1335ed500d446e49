package launch

import (
	"encoding/json"
	"fmt"

	"github.com/actionplanner/launchkit/internal/domain"
)

// Renderer exposes the produced files map verbatim as exportable assets.
type Renderer struct{}

func (Renderer) RenderAssets(run *domain.PipelineRun) (map[string]string, error) {
	// produce is the terminal stage, so the final hand-off holds the files.
	final := run.FinalHandoff()
	if final == nil || final.Stage != "produce" {
		return nil, fmt.Errorf("run %s has no produce output", run.ID)
	}

	var out FilesOut
	if err := json.Unmarshal(final.Payload, &out); err != nil {
		return nil, fmt.Errorf("decode produce output: %w", err)
	}
	return out.Files, nil
}

const mitLicense = `MIT License

Copyright (c) 2026

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
`

const ciWorkflow = `name: CI
on:
  push:
    branches: [ main ]
  pull_request:
    branches: [ main ]

jobs:
  lint:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v3
      - run: npx htmlhint index.html
      - run: npx stylelint styles.css
`
