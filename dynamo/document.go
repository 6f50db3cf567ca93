package dynamo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/python-wizard/course-enrollment/records"
)

const (
	documentEntityName = "DOCUMENT"
	requestTimeout     = 5 * time.Second
)

type documentDynamo struct {
	PK        string
	SK        string
	Name      string
	Body      []byte
	UpdatedAt time.Time
}

func documentPK(name string) string {
	return fmt.Sprintf("%s#%s", documentEntityName, name)
}

func documentSK() string {
	return documentEntityName
}

var _ records.Blob = &Document{}

// Document is a records.Blob kept as a single DynamoDB item.
type Document struct {
	db   *DB
	name string
}

func (d *DB) Document(name string) *Document {
	return &Document{db: d, name: name}
}

func (doc *Document) Load(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := doc.db.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(doc.db.tableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: documentPK(doc.name)},
			"SK": &types.AttributeValueMemberS{Value: documentSK()},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("GetItem for document %q timed out: %w", doc.name, err)
		}
		return nil, fmt.Errorf("failed to fetch document %q: %w", doc.name, err)
	}

	if len(resp.Item) == 0 {
		return nil, fmt.Errorf("document %q: %w", doc.name, fs.ErrNotExist)
	}

	var item documentDynamo
	err = attributevalue.UnmarshalMap(resp.Item, &item)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal document %q: %w", doc.name, err)
	}

	return item.Body, nil
}

// Save replaces the item unconditionally.
func (doc *Document) Save(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	item, err := attributevalue.MarshalMap(documentDynamo{
		PK:        documentPK(doc.name),
		SK:        documentSK(),
		Name:      doc.name,
		Body:      data,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to translate document %q to dynamo model: %w", doc.name, err)
	}

	_, err = doc.db.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(doc.db.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed PutItem call for document %q: %w", doc.name, err)
	}

	return nil
}
