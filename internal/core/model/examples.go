// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package model defines the data structures for the application. This file
// provides hardcoded example instances of the assessment structures.
//
// The examples are embedded into the prompts as "few-shot" samples so the
// generative model returns JSON with exactly the shape the validator expects.
package model

// GetExampleResultItem creates a sample segment assessment.
func GetExampleResultItem() *ResultItem {
	return &ResultItem{
		Recomendations: []string{
			"State the problem the video solves within the first ten seconds.",
			"Show the product on screen while it is being described.",
		},
		AssessmentIndicators: map[string]bool{
			"Hook is present":             true,
			"Speaker introduces the topic": true,
			"Visuals match narration":      false,
		},
	}
}

// GetExampleGeneralResultItem creates a sample whole-video assessment.
func GetExampleGeneralResultItem() *GeneralResultItem {
	return &GeneralResultItem{
		ResultItem: *GetExampleResultItem(),
		Summary: "A presenter walks through setting up a home espresso machine, " +
			"from unboxing to pulling a first shot, and closes with cleaning tips.",
	}
}
