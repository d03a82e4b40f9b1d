// Package content discovers the publishable files of a tutorial package and
// derives their display names.
package content
