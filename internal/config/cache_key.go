package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// TestEndTimeKey holds a total-test deadline as epoch milliseconds.
func (r *CacheKeyStruct) TestEndTimeKey(testID string) string {
	return fmt.Sprintf("test:%s:end_time", testID)
}

var CacheKey = NewCacheKeyStruct()
