package boltdb

import "github.com/agentwallet/agentwallet/internal/store"

var _ store.Store = (*Store)(nil)
