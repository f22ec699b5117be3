package i18n

import (
	"sort"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tr, err := New(DefaultLanguage)
	require.NoError(t, err)

	assert.Equal(t, "Welcome back, miku!", tr.T("en_US", "user.login_success", map[string]interface{}{"username": "miku"}))
	assert.Equal(t, "欢迎回来，miku！", tr.T("zh_CN", "user.login_success", map[string]interface{}{"username": "miku"}))
	assert.Equal(t, "注文 #7 が発送されました。", tr.T("ja_JP", "order.shipped_notice", map[string]interface{}{"order_id": 7}))
}

func TestTranslateFallbacks(t *testing.T) {
	tr, err := New("en_US")
	require.NoError(t, err)

	// unknown language falls back to the default dictionary
	assert.Equal(t, "Invalid request", tr.T("ko_KR", "common.bad_request", nil))
	// unknown key comes back verbatim
	assert.Equal(t, "no.such.key", tr.T("ja_JP", "no.such.key", nil))
	// unused placeholders stay in place
	assert.Equal(t, "Welcome back, {username}!", tr.T("en_US", "user.login_success", map[string]interface{}{"other": 1}))
}

func TestResolve(t *testing.T) {
	tr, err := New(DefaultLanguage)
	require.NoError(t, err)

	tests := []struct {
		header string
		want   string
	}{
		{"", "zh_CN"},
		{"ja_JP", "ja_JP"},
		{"en-US", "en_US"},
		{"ja,en;q=0.8", "ja_JP"},
		{"fr-FR", "zh_CN"},
		{"zh-CN,zh;q=0.9", "zh_CN"},
		{"not a language tag !!", "zh_CN"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Resolve(tt.header))
		})
	}
}

func TestLocalesShareKeys(t *testing.T) {
	tr, err := New(DefaultLanguage)
	require.NoError(t, err)
	require.Len(t, tr.Supported(), 3)

	base := keys(tr.dict[DefaultLanguage])
	for _, lang := range tr.Supported() {
		assert.Equal(t, base, keys(tr.dict[lang]), "locale %s", lang)
	}
}

func TestLoadRequiresFallback(t *testing.T) {
	fsys := fstest.MapFS{
		"l/en_US.json": {Data: []byte(`{"common": {"hi": "hello"}}`)},
	}

	_, err := Load(fsys, "l", "zh_CN", []string{"zh_CN", "en_US"})
	assert.Error(t, err)

	tr, err := Load(fsys, "l", "en_US", []string{"zh_CN", "en_US"})
	require.NoError(t, err)
	assert.Equal(t, []string{"en_US"}, tr.Supported())
	assert.Equal(t, "hello", tr.T("zh_CN", "common.hi", nil))
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
