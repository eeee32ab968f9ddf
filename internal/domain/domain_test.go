package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTestArtifact(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"foo-androidTest.apk", true},
		{"/out/app/foo-debug-androidTest.apk", true},
		{"foo.apk", false},
		{"androidTest.apk.bak", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsTestArtifact(tt.path); got != tt.want {
			t.Errorf("IsTestArtifact(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestNewApp(t *testing.T) {
	app := NewApp("a.apk", "a-androidTest.apk", "b-androidTest.apk")

	assert.Equal(t, KindApp, app.Kind)
	require.Len(t, app.Tests, 2)
	for _, test := range app.Tests {
		assert.Equal(t, KindTest, test.Kind)
		assert.Empty(t, test.Tests)
	}
	assert.Equal(t, "app", KindApp.String())
	assert.Equal(t, "test", KindTest.String())
}

func TestInstallSets(t *testing.T) {
	assignments := []Assignment{
		{InstanceID: "i1", Shard: Shard{
			{Name: "a.apk", Tests: []ShardTest{{Name: "a1-androidTest.apk"}, {Name: "a2-androidTest.apk"}}},
			{Name: "b.apk", Tests: []ShardTest{{Name: "b-androidTest.apk"}}},
		}},
		{InstanceID: "i2", Shard: Shard{
			{Name: "b.apk", Tests: []ShardTest{{Name: "b-androidTest.apk"}}},
		}},
	}

	assert.Equal(t, []ArtifactInstallSet{
		{InstanceID: "i1", Paths: []string{"a1-androidTest.apk", "a2-androidTest.apk", "a.apk", "b-androidTest.apk", "b.apk"}},
		{InstanceID: "i2", Paths: []string{"b-androidTest.apk", "b.apk"}},
	}, InstallSets(assignments))
}

func TestShard_Cases(t *testing.T) {
	shard := Shard{
		{Name: "a.apk", Tests: []ShardTest{{Name: "t1", Cases: []Case{{Name: "x"}, {Name: "y"}}}}},
		{Name: "b.apk", Tests: []ShardTest{{Name: "t2", Cases: []Case{{Name: "z"}}}}},
	}
	assert.Equal(t, 3, shard.CaseCount())
	assert.Equal(t, []string{"x", "y", "z"}, shard.Cases())
}

func TestErrors(t *testing.T) {
	t.Run("capacity shortfall", func(t *testing.T) {
		err := &CapacityError{Required: 5, Ready: 3}
		assert.Equal(t, 2, err.Shortfall())
		assert.Equal(t, "not enough instances: required 5 but 3 ready (short by 2)", err.Error())
		assert.Contains(t, (&CapacityError{Required: 1, Ready: 2}).Error(), "mismatch")
	})

	t.Run("remote wraps cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Remote("upload", "/sdcard/a.apk", cause)

		var remote *RemoteOperationError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, "upload", remote.Op)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "upload /sdcard/a.apk: connection reset", err.Error())
		assert.NoError(t, Remote("upload", "x", nil))
	})

	t.Run("configuration wraps sentinel", func(t *testing.T) {
		err := &ConfigurationError{Subject: "i1", Reason: "no agent", Err: ErrNoAgent}
		assert.ErrorIs(t, err, ErrNoAgent)
		assert.Equal(t, "configuration error: i1: no agent", err.Error())
		assert.Equal(t, "configuration error: bad", (&ConfigurationError{Reason: "bad"}).Error())
	})
}

func TestRunReport_Instance(t *testing.T) {
	var r RunReport
	r.Instance("i1").CaseCount = 3
	r.Instance("i2")
	r.Instance("i1").Output = append(r.Instance("i1").Output, "line")

	require.Len(t, r.Instances, 2)
	assert.Equal(t, 3, r.Instances[0].CaseCount)
	assert.Equal(t, []string{"line"}, r.Instances[0].Output)
}
