// Package files provides workbook discovery for the batch pipeline.
//
// Discovery is deliberately deterministic: directory entries are returned
// in lexicographic name order, so repeated runs over the same corpus log
// and process files in the same order regardless of platform.
package files
