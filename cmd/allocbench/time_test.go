package main

import (
	"bytes"
	"context"
	"testing"

	"allocbench/internal/config"
	"allocbench/internal/driver"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRoot wires a freshly-built subcommand under a throwaway root so
// tests never share flag state through the package-level commands.
func newTestRoot(sub *cobra.Command) (*cobra.Command, *bytes.Buffer) {
	root := &cobra.Command{Use: "allocbench", SilenceErrors: true, SilenceUsage: true}
	root.PersistentFlags().StringP("file", "f", "", "")
	root.PersistentFlags().StringP("command", "c", "", "")
	root.AddCommand(sub)

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	return root, buf
}

func loadDefaults(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	config.Load("")
}

type Sample = driver.Sample

type stubSource struct {
	sample Sample
	calls  int
}

func (s *stubSource) Measure(ctx context.Context, argv, env []string) (Sample, error) {
	s.calls++
	return s.sample, nil
}

func stubTimeSource(t *testing.T, src driver.TimeSource) {
	t.Helper()
	old := newTimeSource
	newTimeSource = func(driver.TimerKind) (driver.TimeSource, error) { return src, nil }
	t.Cleanup(func() { newTimeSource = old })
}

func TestTimeCommandPrintsAggregate(t *testing.T) {
	loadDefaults(t)
	src := &stubSource{sample: Sample{Real: 2, User: 1, System: 0.5}}
	stubTimeSource(t, src)

	root, buf := newTestRoot(newTimeCmd())
	root.SetArgs([]string{"time", "-c", "true", "-i", "2"})
	require.NoError(t, root.Execute())

	assert.Equal(t, 2, src.calls)
	out := buf.String()
	assert.Contains(t, out, "DIMENSION")
	assert.Contains(t, out, "real")
	assert.Contains(t, out, "4.0000") // summed wall time
	assert.Contains(t, out, "2.0000")
}

func TestTimeCommandCSV(t *testing.T) {
	loadDefaults(t)
	stubTimeSource(t, &stubSource{sample: Sample{Real: 2, User: 1, System: 0.5}})

	root, buf := newTestRoot(newTimeCmd())
	root.SetArgs([]string{"time", "-c", "./stress -m 1", "-i", "2", "--csv"})
	require.NoError(t, root.Execute())

	assert.Contains(t, buf.String(), driver.CSVHeader)
	assert.Contains(t, buf.String(), "./stress -m 1,gnu,2,2,2,1,1,1,0.5,0.5,0.5")
}

type stubStore struct {
	saved []driver.RunRecord
}

func (s *stubStore) Save(run driver.RunRecord) error {
	s.saved = append(s.saved, run)
	return nil
}
func (s *stubStore) LoadLatest() (*driver.RunRecord, error) { return nil, nil }
func (s *stubStore) LoadAll() ([]driver.RunRecord, error)   { return nil, nil }

func TestTimeCommandSavesHistory(t *testing.T) {
	loadDefaults(t)
	stubTimeSource(t, &stubSource{sample: Sample{Real: 1}})

	store := &stubStore{}
	oldStore := newStoreFunc
	newStoreFunc = func(string) (driver.Store, error) { return store, nil }
	t.Cleanup(func() { newStoreFunc = oldStore })

	root, buf := newTestRoot(newTimeCmd())
	root.SetArgs([]string{"time", "-c", "true", "-i", "3", "--save"})
	require.NoError(t, root.Execute())

	require.Len(t, store.saved, 1)
	record := store.saved[0]
	assert.Equal(t, "true", record.Command)
	assert.Equal(t, "gnu", record.Allocator)
	assert.Len(t, record.Samples, 3)
	assert.Contains(t, buf.String(), "Samples saved to")
}

func TestBuildTimeConfigMetricsAddrFallback(t *testing.T) {
	loadDefaults(t)
	viper.Set("metrics_addr", "127.0.0.1:9464")

	cmd := newTimeCmd()
	// the target flags are persistent on the root in production
	cmd.Flags().StringP("file", "f", "", "")
	cmd.Flags().StringP("command", "c", "", "")
	require.NoError(t, cmd.Flags().Parse([]string{"-c", "true"}))

	cfg, err := buildTimeConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9464", cfg.MetricsAddr)

	// an explicit flag still wins over the configured value
	require.NoError(t, cmd.Flags().Set("metrics-addr", "127.0.0.1:19464"))
	cfg, err = buildTimeConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:19464", cfg.MetricsAddr)
}

func TestTimeCommandUsageErrors(t *testing.T) {
	t.Run("non-positive iters", func(t *testing.T) {
		loadDefaults(t)
		root, _ := newTestRoot(newTimeCmd())
		root.SetArgs([]string{"time", "-c", "true", "-i", "-3"})
		err := root.Execute()
		require.ErrorIs(t, err, config.ErrInvalid)
		assert.True(t, isUsageError(err))
	})

	t.Run("non-baseline allocator without ldpreload", func(t *testing.T) {
		loadDefaults(t)
		root, _ := newTestRoot(newTimeCmd())
		root.SetArgs([]string{"time", "-c", "true", "--allocator-replacement", "libmimalloc.so"})
		err := root.Execute()
		require.ErrorIs(t, err, config.ErrInvalid)
	})

	t.Run("unknown timer kind", func(t *testing.T) {
		loadDefaults(t)
		root, _ := newTestRoot(newTimeCmd())
		root.SetArgs([]string{"time", "-c", "true", "--timer", "sundial"})
		err := root.Execute()
		require.ErrorIs(t, err, config.ErrInvalid)
	})

	t.Run("file and command are mutually exclusive", func(t *testing.T) {
		loadDefaults(t)
		root, _ := newTestRoot(newTimeCmd())
		root.SetArgs([]string{"time", "-c", "true", "-f", "/bin/true"})
		err := root.Execute()
		require.ErrorIs(t, err, driver.ErrInvalidTarget)
		assert.True(t, isUsageError(err))
	})
}
