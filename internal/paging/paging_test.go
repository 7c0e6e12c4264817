package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		errMsg  string
	}{
		{name: "zero values valid", cfg: Config{}},
		{name: "size and page", cfg: Config{Size: 10, Num: 3}},
		{name: "negative size", cfg: Config{Size: -1}, wantErr: true, errMsg: "non-negative"},
		{name: "negative page", cfg: Config{Size: 10, Num: -2}, wantErr: true, errMsg: "non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBoundsLastPageIsPartial(t *testing.T) {
	cfg := Config{Size: 10, Num: 9}
	start, end := cfg.Bounds(95)
	assert.Equal(t, 90, start)
	assert.Equal(t, 95, end)
	assert.Len(t, Apply(cfg, make([]int, 95)), 5)
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		total int
		want  int
	}{
		{name: "in range", cfg: Config{Size: 10, Num: 3}, total: 95, want: 3},
		{name: "past the end clamps to last page", cfg: Config{Size: 10, Num: 20}, total: 95, want: 9},
		{name: "exact multiple", cfg: Config{Size: 10, Num: 10}, total: 100, want: 9},
		{name: "empty", cfg: Config{Size: 10, Num: 4}, total: 0, want: 0},
		{name: "paging disabled", cfg: Config{Num: 4}, total: 50, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Clamp(tt.total).Num)
		})
	}
}

func TestInfo(t *testing.T) {
	info := Config{Size: 10, Num: 2}.Info(95)
	assert.Equal(t, Info{PageSize: 10, PageNum: 2, TotalRows: 95, TotalPages: 10}, info)

	assert.Equal(t, 1, Config{}.Info(95).TotalPages)
	assert.Equal(t, 1, Config{Size: 10}.Info(0).TotalPages)
}

func TestApplyWithoutPaging(t *testing.T) {
	rows := []string{"a", "b", "c"}
	assert.Equal(t, rows, Apply(Config{}, rows))
	assert.False(t, Config{}.IsActive())
	assert.True(t, Config{Size: 1}.IsActive())
}
