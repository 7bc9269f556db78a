package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSnake(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"GetLocaleInfoW":           "get_locale_info_w",
		"GetACP":                   "get_acp",
		"GetCPInfo":                "get_cp_info",
		"CreateToolhelp32Snapshot": "create_toolhelp32_snapshot",
		"Thread32First":            "thread32_first",
		"GetUserDefaultLCID":       "get_user_default_lcid",
		"GetUserDefaultLangId":     "get_user_default_lang_id",
		"lstrcmpiW":                "lstrcmpi_w",
		"api_DeviceIoControl":      "api_device_io_control",
		"already_snake":            "already_snake",
		"X":                        "x",
		"":                         "",
	}

	for in, want := range tests {
		assert.Equal(t, want, ToSnake(in), "input %q", in)
	}
}

func TestParseCasing(t *testing.T) {
	t.Parallel()

	c, err := ParseCasing("")
	require.NoError(t, err)
	assert.Equal(t, Snake, c)

	c, err = ParseCasing("KEEP")
	require.NoError(t, err)
	assert.Equal(t, "VirtualAlloc", c.Apply("VirtualAlloc"))

	c, err = ParseCasing("lower")
	require.NoError(t, err)
	assert.Equal(t, "virtualalloc", c.Apply("VirtualAlloc"))

	_, err = ParseCasing("kebab")
	assert.Error(t, err)
}
