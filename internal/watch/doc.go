// Package watch polls target files for content changes and feeds the
// resulting change events to a single dispatch consumer. It can also watch
// the script directories and trigger re-detection when scripts are added,
// renamed or removed.
package watch
