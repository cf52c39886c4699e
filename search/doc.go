// Copyright 2025 Fathomlight
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package search provides semantic search over ingested document chunks.
//
// The Searcher embeds the query text, matches it against stored chunk
// vectors, and layers on:
//   - Metadata filtering by owner and document
//   - A minimum-similarity threshold
//   - A verbatim keyword boost with stop-word filtering
//
// Results are scored and ranked so the most relevant chunks for a given
// query come first.
package search
