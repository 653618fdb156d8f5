// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

/*
Package explain turns a ranking into farmer-facing text.

BuildContext packages the ranked candidates, and nothing else, into a Context.
An Explainer renders a Context as text. ChatExplainer calls an
OpenAI-compatible chat completion endpoint (Gemini by default) behind a rate
limiter and a circuit breaker. FallbackExplainer produces deterministic text
from the top candidate and never fails.

Advisor ties the two together: it caches model output per context, bounds each
model call with a timeout and substitutes the fallback text on any failure, so
callers always receive a non-empty explanation.

A Context with no markets is the no-data case. Its prompt forbids inventing
markets or prices, and its fallback text only gives general guidance.
*/
package explain
