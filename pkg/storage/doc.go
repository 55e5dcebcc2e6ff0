// Package storage manages the output directory of the downloader.
//
// Server-declared filenames are reduced to their base name before use, so a
// Content-Disposition value can never write outside the output directory.
// Files are opened for truncating writes; an existing file of the same name
// is replaced.
//
// Usage:
//
//	manager, err := storage.NewManager("roms")
//	if err != nil {
//	    return err
//	}
//
//	file, path, err := manager.Create("adv.zip")
//	if err != nil {
//	    return err
//	}
//	defer file.Close()
package storage
