// Package fileutil lists files in a directory with extension and depth
// filtering.
//
// mapscan uses it to discover rule files (*.yar, *.yara) in a rules
// directory. The scan tree itself is walked by the scanner package, which
// streams paths into its task queue instead of collecting them.
//
// # Behavior
//
//   - Only regular files are returned. Symbolic links are never followed,
//     so a link inside a rules directory cannot pull in files from elsewhere.
//   - Dot files and dot directories are skipped unless IncludeHidden is set.
//   - Extension matching is case-insensitive and the leading dot is optional.
//   - Paths are absolute and sorted, so rule files compile in a stable order.
//   - An unreadable subdirectory is recorded in ScanResult.Errors and the
//     scan continues. Only a missing or unreadable root fails the call.
//
// # Usage
//
//	result, err := fileutil.ScanDirectory(rulesDir, fileutil.ScanOptions{
//	    Extensions: []string{".yar", ".yara"},
//	})
//	if err != nil {
//	    return err
//	}
//	for _, path := range result.Files {
//	    fmt.Println(path)
//	}
package fileutil
