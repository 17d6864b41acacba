package usage

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-framework/usage-reporter/pkg/aws/awstest"
)

const (
	testBucket   = "usage-data"
	testCostKey  = "reports/costs.csv"
	testDailyKey = "reports/daily.csv"
)

func newS3History(t *testing.T, objects map[string]string) (*History, *awstest.MockS3) {
	mock := awstest.NewMockS3()
	mock.NewBucket(testBucket)
	for key, data := range objects {
		mock.SetObject(testBucket, key, []byte(data))
	}
	store := S3Store{Bucket: testBucket, s3: mock}
	return NewHistory(logrus.New(), store, testCostKey, testDailyKey), mock
}

func TestHistoryLoad(t *testing.T) {
	tests := map[string]struct {
		objects     map[string]string
		fresh       bool
		totals      map[string]string
		dailyRows   int
		expectedErr string
	}{
		"nothing stored": {
			fresh:  true,
			totals: map[string]string{},
		},
		"both tables": {
			objects: map[string]string{
				testCostKey:  "user_id,total_cost\nalice,10.00\nbob,5.00\n",
				testDailyKey: "date,user_id,usage_metric,cost\n2024-01-01,alice,1,10\n2024-01-01,bob,1,5\n",
			},
			totals:    map[string]string{"alice": "10.00", "bob": "5.00"},
			dailyRows: 2,
		},
		"costs rebuilt from daily": {
			objects: map[string]string{
				testDailyKey: "2024-01-01,alice,1,2.50\n2024-01-02,alice,1,1.25\n",
			},
			totals:    map[string]string{"alice": "3.75"},
			dailyRows: 2,
		},
		"totals below daily sums are raised": {
			objects: map[string]string{
				testCostKey:  "alice,1.00\nbob,9.00\n",
				testDailyKey: "2024-01-01,alice,1,2.00\n2024-01-01,bob,1,3.00\n",
			},
			totals:    map[string]string{"alice": "2.00", "bob": "9.00"},
			dailyRows: 2,
		},
		"costs without daily usage": {
			objects: map[string]string{
				testCostKey: "alice,1.00\n",
			},
			expectedErr: "cumulative costs exist at s3://usage-data/reports/costs.csv but daily usage at s3://usage-data/reports/daily.csv is missing",
		},
		"corrupt costs": {
			objects: map[string]string{
				testCostKey:  "alice,lots\n",
				testDailyKey: "2024-01-01,alice,1,2.00\n",
			},
			expectedErr: "could not parse s3://usage-data/reports/costs.csv",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			history, _ := newS3History(t, test.objects)
			snap, err := history.Load(context.Background())
			if test.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), test.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.fresh, snap.Fresh)
			assert.Equal(t, len(test.totals), snap.Costs.Len())
			for user, total := range test.totals {
				assert.Equal(t, total, fixed(snap.Costs.Total(user)), user)
			}
			assert.Equal(t, test.dailyRows, snap.Daily.Len())
		})
	}
}

func TestHistoryLoadStoreError(t *testing.T) {
	history, mock := newS3History(t, nil)
	mock.GetErr = errors.New("access denied")

	_, err := history.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestHistorySave(t *testing.T) {
	history, mock := newS3History(t, nil)
	daily := NewDailyTable()
	daily.Put(DailyRecord{Date: date(t, "2024-01-01"), UserID: "alice", Usage: dec("1"), Cost: dec("2.5")})
	snap := &Snapshot{Costs: costTable(map[string]string{"alice": "2.5"}), Daily: daily}

	require.NoError(t, history.Save(context.Background(), snap))

	costs, ok := mock.Object(testBucket, testCostKey)
	require.True(t, ok)
	assert.Equal(t, "user_id,total_cost\nalice,2.50\n", string(costs))
	stored, ok := mock.Object(testBucket, testDailyKey)
	require.True(t, ok)
	assert.Equal(t, "date,user_id,usage_metric,cost\n2024-01-01,alice,1.00,2.50\n", string(stored))

	loaded, err := history.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, loaded.Fresh)
	assert.Equal(t, "2.50", fixed(loaded.Costs.Total("alice")))
}

func TestHistorySaveFailure(t *testing.T) {
	history, mock := newS3History(t, nil)
	mock.PutErr = errors.New("slow down")

	err := history.Save(context.Background(), &Snapshot{Costs: NewCostTable(), Daily: NewDailyTable()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write 's3://usage-data/reports/daily.csv': slow down")
	assert.Empty(t, mock.Puts)
}

func TestFileStore(t *testing.T) {
	dir, err := ioutil.TempDir("", "usage-store")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	store, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "missing.csv")
	assert.True(t, errors.Is(err, ErrNotExist))

	require.NoError(t, store.Put(context.Background(), "nested/table.csv", []byte("a,b\n")))
	data, err := store.Get(context.Background(), "nested/table.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	require.NoError(t, store.Put(context.Background(), "nested/table.csv", []byte("c,d\n")))
	data, err = store.Get(context.Background(), "nested/table.csv")
	require.NoError(t, err)
	assert.Equal(t, "c,d\n", string(data))

	entries, err := ioutil.ReadDir(store.Path("nested"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	history := NewHistory(logrus.New(), store, "costs.csv", "daily.csv")
	snap, err := history.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Fresh)
}

func TestNewFileStoreOnFile(t *testing.T) {
	f, err := ioutil.TempFile("", "usage-store")
	require.NoError(t, err)
	f.Close()
	defer os.Remove(f.Name())

	_, err = NewFileStore(f.Name())
	assert.EqualError(t, err, "the path '"+f.Name()+"' is a file")
}
