//go:build !android && !ios

package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPluginSet_Desktop(t *testing.T) {
	testApp, _ := SetupAppTest(t, nil)

	assert.Equal(t,
		[]string{"store", "notification", "deeplink", "http", "osinfo", "opener"},
		testApp.Registry().Names())
	assert.False(t, testApp.Registry().Has("scanner"))
}
