// Package assetstore implements write-once, date-partitioned byte storage
// for uploaded and converted audio files.
package assetstore
