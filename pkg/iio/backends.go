package iio

// Built-in backends register their URI schemes in backend.Default.
import (
	_ "github.com/industrial-io/iio-go/pkg/backend/memory"
	_ "github.com/industrial-io/iio-go/pkg/backend/remote"
)
