// Package storage names downloaded artifacts and manages the destination
// directory.
//
// Concurrent downloads never share a file: each one is written under a
// pending name <base>.pdf_<token>_<worker>.pdf, where base is derived from
// the URL by SanitizeName and token is unique per call. Once a batch has
// finished, Reconcile renames every pending file to its canonical <base>.pdf,
// or deletes it when the canonical file already exists. Only names with the
// extension repeated before the suffix are pending, so canonical files such as
// minutes_2023_05.pdf are left alone by later batches.
//
//	namer := storage.NewNamer(".pdf", nil)
//	manager, err := storage.NewManager("papers", namer)
//	path, size, err := manager.Write(url, workerID, func(w io.Writer) (int64, error) {
//	    return io.Copy(w, body)
//	})
//	report, err := manager.Reconcile()
package storage
