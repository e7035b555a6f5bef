package config

import (
	"context"
	"fmt"
	"time"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/knadh/koanf/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// publicReadPolicy lets clients load comment media straight from the bucket.
// Nothing outside the media prefix is readable anonymously.
func publicReadPolicy(bucketName string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/%s*"]}]}`, bucketName, constant.MINIO_COMMENT_MEDIA)
}

func NewMinIO(config *koanf.Koanf, log *zap.Logger) *minio.Client {
	minioClient, err := minio.New(config.String("MINIO_URL"), &minio.Options{
		Creds:  credentials.NewStaticV4(config.String("MINIO_USER"), config.String("MINIO_PASSWORD"), ""),
		Secure: config.String("MINIO_HTTP") == "https://",
	})
	if err != nil {
		log.Fatal("failed to initialize minio client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bucketName := config.String("MINIO_BUCKET_NAME")

	exists, err := minioClient.BucketExists(ctx, bucketName)
	if err != nil {
		log.Fatal("failed to check minio bucket", zap.String("bucket", bucketName), zap.Error(err))
	}

	if !exists {
		err = minioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: config.String("MINIO_LOCATION")})
		if err != nil {
			log.Fatal("failed to create minio bucket", zap.String("bucket", bucketName), zap.Error(err))
		}
		log.Info("created minio bucket", zap.String("bucket", bucketName))
	}

	err = minioClient.SetBucketPolicy(ctx, bucketName, publicReadPolicy(bucketName))
	if err != nil {
		log.Warn("failed to set comment media read policy", zap.String("bucket", bucketName), zap.Error(err))
	}

	return minioClient
}
