package dynamo

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo stores items in memory and understands the handful of
// expressions the repository emits. Scan ignores filters and returns the
// configured scanItems when set.
type fakeDynamo struct {
	mu        sync.Mutex
	items     map[string]map[string]types.AttributeValue
	scanItems []map[string]types.AttributeValue
	err       error

	lastScan   *dynamodb.ScanInput
	lastUpdate *dynamodb.UpdateItemInput
	lastGet    *dynamodb.GetItemInput
	puts       int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func keyOf(key map[string]types.AttributeValue) string {
	return key[attrID].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.puts++
	f.items[keyOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastGet = in
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastScan = in
	if f.err != nil {
		return nil, f.err
	}
	items := f.scanItems
	if items == nil {
		for _, it := range f.items {
			items = append(items, it)
		}
	}
	return &dynamodb.ScanOutput{Items: items, ScannedCount: int32(len(items))}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUpdate = in
	if f.err != nil {
		return nil, f.err
	}
	stored, ok := f.items[keyOf(in.Key)]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	item := make(map[string]types.AttributeValue, len(stored)+1)
	for k, v := range stored {
		item[k] = v
	}
	f.items[keyOf(in.Key)] = item

	expr := strings.TrimPrefix(aws.ToString(in.UpdateExpression), "SET ")
	if strings.Contains(expr, "list_append(") {
		attr := in.ExpressionAttributeNames["#files"]
		current, _ := item[attr].(*types.AttributeValueMemberL)
		list := []types.AttributeValue{}
		if current != nil {
			list = append(list, current.Value...)
		}
		list = append(list, in.ExpressionAttributeValues[":new_file"].(*types.AttributeValueMemberL).Value...)
		item[attr] = &types.AttributeValueMemberL{Value: list}
		return &dynamodb.UpdateItemOutput{}, nil
	}

	for _, clause := range strings.Split(expr, ", ") {
		parts := strings.SplitN(clause, " = ", 2)
		if len(parts) != 2 {
			return nil, errors.New("fake: unsupported update clause " + clause)
		}
		item[in.ExpressionAttributeNames[parts[0]]] = in.ExpressionAttributeValues[parts[1]]
	}
	return &dynamodb.UpdateItemOutput{Attributes: item}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	delete(f.items, keyOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}
