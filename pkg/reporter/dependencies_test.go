package reporter

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-framework/usage-reporter/pkg/config"
	"github.com/operator-framework/usage-reporter/pkg/notify"
)

func TestNewDependencies(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dataDir := t.TempDir()
	dryRunDir := filepath.Join(t.TempDir(), "outbox")

	tests := map[string]struct {
		configure         func(cfg *config.Config)
		expectedCosts     string
		expectedNotifier  interface{}
		expectedErrPrefix string
	}{
		"s3 and ses": {
			configure:        func(cfg *config.Config) {},
			expectedCosts:    "s3://usage-data/reports/costs.csv",
			expectedNotifier: &notify.SESNotifier{},
		},
		"files and dry run": {
			configure: func(cfg *config.Config) {
				cfg.Storage = config.StorageFile
				cfg.DataDir = dataDir
				cfg.DryRunDir = dryRunDir
			},
			expectedCosts:    filepath.Join(dataDir, "reports", "costs.csv"),
			expectedNotifier: &notify.DirNotifier{},
		},
		"bad user pattern": {
			configure: func(cfg *config.Config) {
				cfg.UserIDPattern = "("
			},
			expectedErrPrefix: "invalid user id pattern",
		},
		"unknown storage": {
			configure: func(cfg *config.Config) {
				cfg.Storage = "tape"
			},
			expectedErrPrefix: `unknown storage "tape"`,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			tt.configure(&cfg)

			deps, err := NewDependencies(logger, cfg)
			if tt.expectedErrPrefix != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErrPrefix)
				return
			}
			require.NoError(t, err)

			costs, _ := deps.History.Locations()
			assert.Equal(t, tt.expectedCosts, costs)
			assert.IsType(t, tt.expectedNotifier, deps.Notifier)
			assert.NotNil(t, deps.Inventory)
			assert.NotNil(t, deps.Costs)
			assert.NotNil(t, deps.Attributor)
			assert.NotNil(t, deps.EmailTemplate)
		})
	}
}
