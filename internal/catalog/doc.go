// Package catalog persists asset records in SQLite and answers the three
// ordered lookups the resolution engine runs: newest per slot, newest sibling
// variant per group and format, and oldest (original) per group.
package catalog
