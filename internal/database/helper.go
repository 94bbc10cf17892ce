package database

import "fmt"

// storeKey namespaces keys in shared backends.
func storeKey(key string) string {
	return fmt.Sprintf("scanvault:%s", key)
}
