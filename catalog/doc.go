// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package catalog derives filtered views of an election collection.

	visible, err := catalog.Filter(elections, catalog.Query{Status: "active", Search: "council"})

The status filter is "all" or an exact status. The search term matches
title or description as a case-insensitive substring. Results keep the
relative order of the input; every call rescans the whole collection.
*/
package catalog
