package distribution

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssvlabs/validator-keysync/errs"
)

type keyRange struct{ start, end int }

func ranges(n, total int) []keyRange {
	var out []keyRange
	for i := 0; i < total; i++ {
		start, end := ComputeRange(n, i, total)
		out = append(out, keyRange{start, end})
	}
	return out
}

func TestComputeRangeLastBlockShorter(t *testing.T) {
	require.Equal(t, []keyRange{{0, 4}, {4, 8}, {8, 10}}, ranges(10, 3))
}

func TestComputeRangeMoreReplicasThanKeys(t *testing.T) {
	require.Equal(t, []keyRange{{0, 1}, {1, 2}, {2, 2}, {2, 2}, {2, 2}}, ranges(2, 5))

	for i := 0; i < 2; i++ {
		_, _, err := SelectRange(2, i, 5)
		require.NoError(t, err)
	}
	for i := 2; i < 5; i++ {
		_, _, err := SelectRange(2, i, 5)
		require.True(t, errs.IsConfigurationError(err), "replica %d", i)
	}
}

func TestComputeRangePartitions(t *testing.T) {
	for n := 0; n <= 60; n++ {
		for total := 1; total <= 12; total++ {
			blockSize := (n + total - 1) / total
			covered := 0
			prevEnd := 0
			for i, r := range ranges(n, total) {
				require.Equal(t, prevEnd, r.start, "n=%d total=%d replica=%d", n, total, i)
				require.LessOrEqual(t, r.start, r.end)
				require.LessOrEqual(t, r.end, n)
				require.LessOrEqual(t, r.end-r.start, blockSize)
				if r.end < n {
					// Only the block reaching n may be shorter.
					require.Equal(t, blockSize, r.end-r.start, "n=%d total=%d replica=%d", n, total, i)
				}
				covered += r.end - r.start
				prevEnd = r.end
			}
			require.Equal(t, n, covered, "n=%d total=%d", n, total)
		}
	}
}

func TestSelectRangeValidation(t *testing.T) {
	tests := []struct {
		name         string
		n, idx, tot  int
		wantStartEnd keyRange
		wantErr      bool
	}{
		{name: "single replica", n: 7, idx: 0, tot: 1, wantStartEnd: keyRange{0, 7}},
		{name: "middle replica", n: 10, idx: 1, tot: 3, wantStartEnd: keyRange{4, 8}},
		{name: "zero total", n: 10, idx: 0, tot: 0, wantErr: true},
		{name: "negative index", n: 10, idx: -1, tot: 3, wantErr: true},
		{name: "index out of range", n: 10, idx: 3, tot: 3, wantErr: true},
		{name: "no keys", n: 0, idx: 0, tot: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := SelectRange(tt.n, tt.idx, tt.tot)
			if tt.wantErr {
				require.True(t, errs.IsConfigurationError(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantStartEnd, keyRange{start, end})
		})
	}
}

func TestKeysEqual(t *testing.T) {
	require.True(t, KeysEqual(nil, nil))
	require.True(t, KeysEqual([]string{}, nil))
	require.True(t, KeysEqual([]string{"a", "b", "c"}, []string{"c", "a", "b"}))
	require.True(t, KeysEqual([]string{"a", "a", "b"}, []string{"a", "b", "a"}))
	require.False(t, KeysEqual([]string{"a", "a", "b"}, []string{"a", "b", "b"}))
	require.False(t, KeysEqual([]string{"a"}, []string{"a", "b"}))
	require.False(t, KeysEqual([]string{"a", "b"}, []string{"a", "c"}))
}

func TestReplicaIndexFromHostname(t *testing.T) {
	tests := []struct {
		hostname string
		want     int
		wantErr  bool
	}{
		{hostname: "validator-0", want: 0},
		{hostname: "validator-12", want: 12},
		{hostname: "lighthouse-validator-3.lighthouse.default.svc.cluster.local", want: 3},
		{hostname: "validator", wantErr: true},
		{hostname: "validator-", wantErr: true},
		{hostname: "validator-abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			got, err := ReplicaIndexFromHostname(tt.hostname)
			if tt.wantErr {
				require.True(t, errs.IsConfigurationError(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestWeb3SignerURLFromEnv(t *testing.T) {
	t.Run("default variable", func(t *testing.T) {
		t.Setenv(DefaultWeb3SignerURLEnv, "http://web3signer:9000")
		got, err := Web3SignerURLFromEnv(DefaultWeb3SignerURLEnv)
		require.NoError(t, err)
		require.Equal(t, "http://web3signer:9000", got)
	})

	t.Run("custom variable", func(t *testing.T) {
		t.Setenv("SIGNER_ENDPOINT", "https://signer.example.com")
		got, err := Web3SignerURLFromEnv("SIGNER_ENDPOINT")
		require.NoError(t, err)
		require.Equal(t, "https://signer.example.com", got)
	})

	t.Run("unset", func(t *testing.T) {
		_, err := Web3SignerURLFromEnv("KEYSYNC_TEST_UNSET_VARIABLE")
		require.True(t, errs.IsConfigurationError(err))
	})

	t.Run("empty", func(t *testing.T) {
		t.Setenv("SIGNER_ENDPOINT", "")
		_, err := Web3SignerURLFromEnv("SIGNER_ENDPOINT")
		require.True(t, errs.IsConfigurationError(err))
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := Web3SignerURLFromEnv("1-BAD NAME")
		require.True(t, errs.IsConfigurationError(err))
	})

	t.Run("invalid scheme", func(t *testing.T) {
		t.Setenv("SIGNER_ENDPOINT", "ftp://signer")
		_, err := Web3SignerURLFromEnv("SIGNER_ENDPOINT")
		require.ErrorContains(t, err, "unsupported scheme")
	})
}
