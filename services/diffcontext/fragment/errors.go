// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fragment

import "errors"

var (
	// ErrFileTooLarge is returned by TreeSitterStrategy when a file exceeds
	// its maximum parse size (2 MiB).
	ErrFileTooLarge = errors.New("fragment: file exceeds maximum size")
	// ErrNotUTF8 reports content that cannot be decoded as UTF-8. No function
	// in this package checks encoding or returns it.
	ErrNotUTF8 = errors.New("fragment: file content is not valid UTF-8")
	// ErrNoStrategy reports a file no strategy claims. Registry.FragmentFile
	// never returns it, since its line-window fallback claims every file.
	ErrNoStrategy = errors.New("fragment: no fragmenter strategy matched file")
)
