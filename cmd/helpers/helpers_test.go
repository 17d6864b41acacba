package helpers

import (
	"os"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setenv(t *testing.T, key, value string) {
	old, had := os.LookupEnv(key)
	require.NoError(t, os.Setenv(key, value))
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func newFlagSet() (*pflag.FlagSet, *string, *[]string) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	bucket := fs.String("bucket", "", "")
	recipients := fs.StringSlice("recipients", nil, "")
	return fs, bucket, recipients
}

func TestSetFlagsFromEnv(t *testing.T) {
	setenv(t, "USAGE_REPORTER_BUCKET", "from-env")
	setenv(t, "USAGE_REPORTER_RECIPIENTS", "a@example.com,b@example.com")

	fs, bucket, recipients := newFlagSet()
	require.NoError(t, fs.Parse([]string{"--bucket", "from-flag"}))
	require.NoError(t, SetFlagsFromEnv(fs, "USAGE_REPORTER"))

	assert.Equal(t, "from-flag", *bucket)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, *recipients)
}

func TestMapEnvVarToFlag(t *testing.T) {
	vars := map[string]string{
		"S3_BUCKET_FOR_ALL_DATA": "bucket",
		"EMAIL_RECIPIENTS":       "recipients",
	}

	tests := map[string]struct {
		args               []string
		env                map[string]string
		expectedBucket     string
		expectedRecipients []string
		expectedErr        string
	}{
		"legacy names": {
			env:                map[string]string{"S3_BUCKET_FOR_ALL_DATA": "legacy", "EMAIL_RECIPIENTS": "a@example.com"},
			expectedBucket:     "legacy",
			expectedRecipients: []string{"a@example.com"},
		},
		"flags win": {
			args:           []string{"--bucket=flag"},
			env:            map[string]string{"S3_BUCKET_FOR_ALL_DATA": "legacy"},
			expectedBucket: "flag",
		},
		"unset variables are ignored": {},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			for _, env := range []string{"S3_BUCKET_FOR_ALL_DATA", "EMAIL_RECIPIENTS"} {
				setenv(t, env, tt.env[env])
			}
			fs, bucket, recipients := newFlagSet()
			require.NoError(t, fs.Parse(tt.args))

			err := MapEnvVarToFlag(vars, fs)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedBucket, *bucket)
			assert.Equal(t, tt.expectedRecipients, *recipients)
		})
	}

	fs, _, _ := newFlagSet()
	err := MapEnvVarToFlag(map[string]string{"START_DATE": "start-date"}, fs)
	assert.EqualError(t, err, "the start-date flag doesn't exist")
}

func TestSetupLogger(t *testing.T) {
	logger, err := SetupLogger("debug", true, log.Fields{"app": "usage-reporter"})
	require.NoError(t, err)
	entry, ok := logger.(*log.Entry)
	require.True(t, ok)
	assert.Equal(t, log.DebugLevel, entry.Logger.Level)
	assert.Equal(t, "usage-reporter", entry.Data["app"])

	_, err = SetupLogger("loud", false, nil)
	assert.Error(t, err)
}

func TestEnvVarName(t *testing.T) {
	assert.Equal(t, "USAGE_REPORTER_CLUSTER_TAG_KEY", EnvVarName("USAGE_REPORTER", "cluster-tag-key"))
}
