package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvgrid/internal/item"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		errMsg  string
	}{
		{name: "valid limit only", cfg: Config{Limit: 10}},
		{name: "valid offset only", cfg: Config{Offset: 5}},
		{name: "valid limit and offset", cfg: Config{Limit: 10, Offset: 5}},
		{name: "valid tail only", cfg: Config{Tail: 10}},
		{name: "tail ignores offset", cfg: Config{Tail: 10, Offset: 5}},
		{name: "limit and tail mutually exclusive", cfg: Config{Limit: 10, Tail: 5}, wantErr: true, errMsg: "mutually exclusive"},
		{name: "negative limit invalid", cfg: Config{Limit: -1}, wantErr: true, errMsg: "non-negative"},
		{name: "negative offset invalid", cfg: Config{Offset: -1}, wantErr: true, errMsg: "non-negative"},
		{name: "negative tail invalid", cfg: Config{Tail: -1}, wantErr: true, errMsg: "non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestIsActive(t *testing.T) {
	assert.False(t, Config{}.IsActive())
	assert.True(t, Config{Limit: 1}.IsActive())
	assert.True(t, Config{Offset: 1}.IsActive())
	assert.True(t, Config{Tail: 1}.IsActive())
}

func TestApply(t *testing.T) {
	records := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	tests := []struct {
		name string
		cfg  Config
		want []int
	}{
		{name: "inactive", cfg: Config{}, want: records},
		{name: "limit", cfg: Config{Limit: 3}, want: []int{0, 1, 2}},
		{name: "offset", cfg: Config{Offset: 7}, want: []int{7, 8, 9}},
		{name: "offset and limit", cfg: Config{Offset: 2, Limit: 3}, want: []int{2, 3, 4}},
		{name: "limit past end", cfg: Config{Offset: 8, Limit: 5}, want: []int{8, 9}},
		{name: "offset past end", cfg: Config{Offset: 20}, want: []int{}},
		{name: "tail", cfg: Config{Tail: 2}, want: []int{8, 9}},
		{name: "tail ignores offset", cfg: Config{Tail: 2, Offset: 1}, want: []int{8, 9}},
		{name: "tail longer than input", cfg: Config{Tail: 50}, want: records},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(tt.cfg, records))
		})
	}
}

func TestApplyItems(t *testing.T) {
	items := []item.Item{{"id": 1}, {"id": 2}, {"id": 3}}
	got := Apply(Config{Offset: 1, Limit: 1}, items)
	assert.Equal(t, []item.Item{{"id": 2}}, got)
	assert.Empty(t, Apply(Config{Limit: 1}, []item.Item(nil)))
}
