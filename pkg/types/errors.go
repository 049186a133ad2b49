// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// ErrConfig marks configuration errors: unknown databases or providers,
// missing queries, inverted date windows. Callers test for it with errors.Is.
var ErrConfig = errors.New("configuration error")
