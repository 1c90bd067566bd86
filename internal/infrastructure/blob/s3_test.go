package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/taskboard/backend/internal/core/ports"
)

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	bodies  []string
	deletes []*s3.DeleteObjectsInput
	err     error
	failKey string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, in)
	out := &s3.DeleteObjectsOutput{}
	for _, obj := range in.Delete.Objects {
		if aws.ToString(obj.Key) == f.failKey {
			out.Errors = append(out.Errors, types.Error{Key: obj.Key, Message: aws.String("AccessDenied")})
		}
	}
	return out, nil
}

type fakePresigner struct {
	err     error
	expires time.Duration
}

func (p *fakePresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if p.err != nil {
		return nil, p.err
	}
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	p.expires = opts.Expires
	return &v4.PresignedHTTPRequest{
		URL: fmt.Sprintf("https://%s.s3.amazonaws.com/%s?X-Amz-Signature=abc", aws.ToString(in.Bucket), aws.ToString(in.Key)),
	}, nil
}

func TestObjectKey(t *testing.T) {
	tests := []struct{ name, want string }{
		{"report.PDF", "tasks/t1/files/u.pdf"},
		{"archive.tar.gz", "tasks/t1/files/u.gz"},
		{"README", "tasks/t1/files/u"},
	}
	for _, tt := range tests {
		if got := ObjectKey("t1", tt.name, "u"); got != tt.want {
			t.Errorf("ObjectKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestPut(t *testing.T) {
	client := &fakeS3{}
	store := NewS3Store(S3Config{
		Client:     client,
		Bucket:     "task-manager-files",
		UploadedBy: "task-manager-api",
		NewID:      func() string { return "fixed" },
	})

	key, err := store.Put(context.Background(), ports.BlobObject{
		TaskID: "t1", FileName: "a.txt", ContentType: "text/plain", Data: []byte("hi"),
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if key != "tasks/t1/files/fixed.txt" {
		t.Errorf("unexpected key %q", key)
	}
	in := client.puts[0]
	if aws.ToString(in.Bucket) != "task-manager-files" || aws.ToString(in.ContentType) != "text/plain" {
		t.Errorf("unexpected input %+v", in)
	}
	want := map[string]string{"original_filename": "a.txt", "task_id": "t1", "uploaded_by": "task-manager-api"}
	for k, v := range want {
		if in.Metadata[k] != v {
			t.Errorf("metadata %s = %q, want %q", k, in.Metadata[k], v)
		}
	}
	if client.bodies[0] != "hi" {
		t.Errorf("body %q", client.bodies[0])
	}

	client.err = errors.New("no bucket")
	if _, err := store.Put(context.Background(), ports.BlobObject{TaskID: "t1", FileName: "a"}); err == nil {
		t.Error("expected error")
	}
}

func TestURLFor(t *testing.T) {
	ctx := context.Background()

	local := NewS3Store(S3Config{Client: &fakeS3{}, Bucket: "b", Endpoint: "http://localhost:4566/"})
	if got, _ := local.URLFor(ctx, "tasks/t/files/x.txt"); got != "http://localhost:4566/b/tasks/t/files/x.txt" {
		t.Errorf("local url %q", got)
	}

	presigner := &fakePresigner{}
	remote := NewS3Store(S3Config{Client: &fakeS3{}, Presigner: presigner, Bucket: "b"})
	got, err := remote.URLFor(ctx, "k")
	if err != nil || !strings.HasPrefix(got, "https://b.s3.amazonaws.com/k?") {
		t.Errorf("presigned url %q, err %v", got, err)
	}
	if presigner.expires != time.Hour {
		t.Errorf("expected 1h expiry, got %v", presigner.expires)
	}

	presigner.err = errors.New("no creds")
	if got, _ := remote.URLFor(ctx, "k"); got != "s3://b/k" {
		t.Errorf("fallback url %q", got)
	}
}

func TestDeleteMany(t *testing.T) {
	client := &fakeS3{}
	store := NewS3Store(S3Config{Client: client, Bucket: "b"})

	keys := make([]string, 1500)
	for i := range keys {
		keys[i] = fmt.Sprintf("k%d", i)
	}
	if err := store.DeleteMany(context.Background(), keys); err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if len(client.deletes) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(client.deletes))
	}
	if n := len(client.deletes[0].Delete.Objects); n != 1000 {
		t.Errorf("first batch %d", n)
	}
	if !aws.ToBool(client.deletes[1].Delete.Quiet) {
		t.Error("deletes should be quiet")
	}

	client.failKey = "k3"
	if err := store.DeleteMany(context.Background(), []string{"k1", "k3"}); err == nil {
		t.Error("expected per-key failure to surface")
	}
}
