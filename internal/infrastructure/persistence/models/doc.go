// Package models contains GORM persistence models and their conversions
// to and from domain entities. Persistence concerns (column types, indexes,
// table names) live here so domain entities stay storage-agnostic.
package models
