package repository

import "errors"

var (
	// 対象が存在しない
	ErrNotFound = errors.New("not found")
	// 一意制約に衝突した（支払いの二重登録など）
	ErrConflict = errors.New("conflict")
)
