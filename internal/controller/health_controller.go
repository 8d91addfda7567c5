package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Service   string        `json:"service"`
	Version   string        `json:"version"`
	Database  string        `json:"database"`
	Bucket    string        `json:"bucket"`
	Storage   StorageStatus `json:"storage"`
}

type StorageStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// BucketProber checks that the results bucket is reachable.
type BucketProber interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type HealthController struct {
	prober   BucketProber
	database string
	bucket   string
}

func NewHealthController(prober BucketProber, database, bucket string) *HealthController {
	return &HealthController{
		prober:   prober,
		database: database,
		bucket:   bucket,
	}
}

func (hc *HealthController) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   "athena-gateway",
		Version:   "1.0.0",
		Database:  hc.database,
		Bucket:    hc.bucket,
		Storage: StorageStatus{
			Status: "unknown",
		},
	}

	if hc.prober != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		_, err := hc.prober.HeadBucket(ctx, &s3.HeadBucketInput{
			Bucket: aws.String(hc.bucket),
		})
		if err != nil {
			resp.Status = "unhealthy"
			resp.Storage.Status = "unreachable"
			resp.Storage.Message = "Results bucket check failed: " + err.Error()
		} else {
			resp.Storage.Status = "reachable"
		}
	}

	statusCode := http.StatusOK
	if resp.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, resp)
}
