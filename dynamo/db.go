package dynamo

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DB stores whole documents in a table keyed by PK/SK strings.
type DB struct {
	dynamoClient *dynamodb.Client
	tableName    string
}

func NewDB(dynamoClient *dynamodb.Client, tableName string) *DB {
	return &DB{
		dynamoClient: dynamoClient,
		tableName:    tableName,
	}
}
