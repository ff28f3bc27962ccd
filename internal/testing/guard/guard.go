package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CASTQUEST_TEST_MODE") == "" {
			_ = os.Setenv("CASTQUEST_TEST_MODE", "1")
		}
	})
}
