package services

import "errors"

// ErrNotFound dikembalikan ketika pasangan id/owner tidak ada.
// Handler memetakannya ke 404.
var ErrNotFound = errors.New("record not found")
