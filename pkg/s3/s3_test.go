package s3

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, cfg *aws.Config) *Client {
	t.Helper()
	sess, err := session.NewSession(cfg)
	require.NoError(t, err)
	return &Client{s3Client: s3.New(sess), bucket: "media"}
}

func TestURL_MinIO(t *testing.T) {
	client := newTestClient(t, &aws.Config{
		Region:           aws.String("us-east-1"),
		Endpoint:         aws.String("http://localhost:9000"),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(true),
	})

	assert.Equal(t, "http://localhost:9000/media/posts/alice/x.jpg", client.URL("posts/alice/x.jpg"))
}

func TestURL_AWS(t *testing.T) {
	client := newTestClient(t, &aws.Config{Region: aws.String("eu-west-1")})

	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/avatars/bob/y.png", client.URL("avatars/bob/y.png"))
}
