// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

// Package models defines the API response envelope shared by every HTTP
// endpoint and the machine-readable error codes clients switch on.
package models
