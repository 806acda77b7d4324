package manifest

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"github.com/whtech/woleet-weblibs/internal/hashfile"
)

const emptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func sampleResults() []hashfile.JobResult {
	return []hashfile.JobResult{
		{
			File:    hashfile.NewMemFile("empty.bin", nil),
			Backend: hashfile.BackendNative,
			State:   hashfile.JobDone,
			Digest:  emptyDigest,
		},
		{
			File:  hashfile.NewMemFile("broken.bin", []byte("x")),
			State: hashfile.JobFailed,
			Err:   hashfile.ErrNoViableBackend,
		},
	}
}

func TestFromResultsKeepsOrderAndErrors(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	m := FromResults(sampleResults(), now)

	require.Equal(t, now, m.Generated)
	require.Len(t, m.Entries, 2)
	require.Equal(t, Entry{Name: "empty.bin", SHA256: emptyDigest, Backend: "native"}, m.Entries[0])
	require.Equal(t, "broken.bin", m.Entries[1].Name)
	require.Equal(t, int64(1), m.Entries[1].Size)
	require.Empty(t, m.Entries[1].Backend)
	require.Contains(t, m.Entries[1].Error, "no_viable_hash_method")

	data, err := m.Encode()
	require.NoError(t, err)
	back, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, m.Entries, back.Entries)
}

func TestFileSinkWritesIntoDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := FromResults(sampleResults(), time.Now())

	where, err := Write(context.Background(), &FileSink{Path: dir}, "digests.yaml", m)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "digests.yaml"), where)

	data, err := os.ReadFile(where)
	require.NoError(t, err)
	require.Contains(t, string(data), emptyDigest)
}

func TestParseS3URL(t *testing.T) {
	t.Parallel()

	bucket, prefix, err := ParseS3URL("s3://archive/digests/2026")
	require.NoError(t, err)
	require.Equal(t, "archive", bucket)
	require.Equal(t, "digests/2026", prefix)

	bucket, prefix, err = ParseS3URL("s3://archive")
	require.NoError(t, err)
	require.Equal(t, "archive", bucket)
	require.Empty(t, prefix)

	_, _, err = ParseS3URL("https://archive")
	require.ErrorIs(t, err, ErrS3URL)
}

type fakeLister struct{ err error }

func (f *fakeLister) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return &s3.ListObjectsV2Output{}, f.err
}

type fakeUploader struct {
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.input = in
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &manager.UploadOutput{}, nil
}

func TestS3SinkUploadsWithDigestMetadata(t *testing.T) {
	t.Parallel()

	up := &fakeUploader{}
	sink, err := newS3Sink(context.Background(), &fakeLister{}, up, "s3://archive/digests", true)
	require.NoError(t, err)

	where, err := sink.Put(context.Background(), "batch.yaml", []byte("entries: []\n"))
	require.NoError(t, err)
	require.Equal(t, "s3://archive/digests/batch.yaml", where)

	require.Equal(t, "archive", aws.ToString(up.input.Bucket))
	require.Equal(t, "digests/batch.yaml", aws.ToString(up.input.Key))
	require.Equal(t, types.StorageClassReducedRedundancy, up.input.StorageClass)
	require.Equal(t, digestOf([]byte("entries: []\n")), up.input.Metadata["sha256"])
	require.Equal(t, "entries: []\n", string(up.body))
}

func TestS3SinkPingFailure(t *testing.T) {
	t.Parallel()

	_, err := newS3Sink(context.Background(), &fakeLister{err: errors.New("access denied")}, &fakeUploader{}, "s3://archive", false)
	require.ErrorContains(t, err, "access denied")
}
