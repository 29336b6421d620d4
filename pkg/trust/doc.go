// Package trust classifies fetched artifacts into coarse trust tiers.
//
// Classification uses only URL structure and two configurable domain sets
// (authoritative and primary sources); there is no semantic analysis of
// content. Search-result URLs always classify as the search_result tier,
// regardless of the underlying domain: search indexes produce candidate
// links, never verified truth.
package trust
