package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

const (
	DefaultListLimit = domain.DefaultListLimit
	MaxListLimit     = domain.MaxListLimit
)

// API is the subset of *dynamodb.Client the repository uses.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type TaskRepositoryConfig struct {
	Client    API
	TableName string
	Logger    *logger.Logger
	Now       func() time.Time
}

type taskRepository struct {
	db        API
	tableName string
	log       *logger.Logger
	now       func() time.Time
}

func NewTaskRepository(cfg TaskRepositoryConfig) ports.TaskRepository {
	now := cfg.Now
	if now == nil {
		now = domain.Now
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &taskRepository{
		db:        cfg.Client,
		tableName: cfg.TableName,
		log:       log,
		now:       now,
	}
}

func (r *taskRepository) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrID: &types.AttributeValueMemberS{Value: id},
	}
}

func (r *taskRepository) Put(ctx context.Context, task *domain.Task) error {
	item, err := attributevalue.MarshalMap(taskToItem(task))
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", task.ID, err)
	}

	_, err = r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		r.log.Errorw("task_repo_put_failed", "id", task.ID, "error", err)
		return unavailable("put", err)
	}
	r.log.Debugw("task_repo_put_ok", "id", task.ID)
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            r.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		r.log.Errorw("task_repo_get_failed", "id", id, "error", err)
		return nil, unavailable("get", err)
	}
	if out.Item == nil {
		return nil, domain.ErrTaskNotFound
	}

	task, err := decode(out.Item)
	if err != nil {
		// Unreadable records are reported as absent.
		r.log.Warnw("task_repo_get_malformed", "id", id, "error", err)
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

// List scans one page of at most limit items, filtered server side, so the
// result may hold fewer than limit tasks even when more matches exist.
func (r *taskRepository) List(ctx context.Context, filter domain.ListFilter, limit int) ([]domain.Task, error) {
	limit = clampLimit(limit)
	in := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(int32(limit)),
	}
	if expr, names, values := buildFilter(filter); expr != "" {
		in.FilterExpression = aws.String(expr)
		in.ExpressionAttributeNames = names
		in.ExpressionAttributeValues = values
	}

	out, err := r.db.Scan(ctx, in)
	if err != nil {
		r.log.Errorw("task_repo_list_failed", "error", err)
		return nil, unavailable("scan", err)
	}

	tasks := make([]domain.Task, 0, len(out.Items))
	skipped := 0
	for _, raw := range out.Items {
		task, err := decode(raw)
		if err != nil {
			skipped++
			r.log.Warnw("task_repo_list_skip_malformed", "error", err)
			continue
		}
		tasks = append(tasks, *task)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	r.log.Debugw("task_repo_list_ok", "count", len(tasks), "scanned", out.ScannedCount, "skipped", skipped)
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, id string, fields domain.FieldSet) (*domain.Task, error) {
	expr, names, values, err := buildUpdate(fields, r.now())
	if err != nil {
		return nil, err
	}
	names["#id"] = attrID

	out, err := r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       r.key(id),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return nil, domain.ErrTaskNotFound
		}
		r.log.Errorw("task_repo_update_failed", "id", id, "fields", fields.Names(), "error", err)
		return nil, unavailable("update", err)
	}

	task, err := decode(out.Attributes)
	if err != nil {
		r.log.Warnw("task_repo_update_malformed", "id", id, "error", err)
		return nil, domain.ErrTaskNotFound
	}
	r.log.Infow("task_repo_update_ok", "id", id, "fields", fields.Names())
	return task, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.key(id),
	})
	if err != nil {
		r.log.Errorw("task_repo_delete_failed", "id", id, "error", err)
		return unavailable("delete", err)
	}
	r.log.Infow("task_repo_delete_ok", "id", id)
	return nil
}

// AppendFile relies on list_append so concurrent callers never overwrite
// each other's entries.
func (r *taskRepository) AppendFile(ctx context.Context, id string, fileRef string) error {
	_, err := r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 r.key(id),
		UpdateExpression:    aws.String("SET #files = list_append(if_not_exists(#files, :empty_list), :new_file)"),
		ConditionExpression: aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#files": attrFiles,
			"#id":    attrID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty_list": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":new_file": &types.AttributeValueMemberL{Value: []types.AttributeValue{
				&types.AttributeValueMemberS{Value: fileRef},
			}},
		},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return domain.ErrTaskNotFound
		}
		r.log.Errorw("task_repo_append_file_failed", "id", id, "file", fileRef, "error", err)
		return unavailable("append file", err)
	}
	r.log.Infow("task_repo_append_file_ok", "id", id, "file", fileRef)
	return nil
}

func decode(raw map[string]types.AttributeValue) (*domain.Task, error) {
	var item taskItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedItem, err)
	}
	return itemToTask(item)
}

// buildFilter joins the present filters with AND.
func buildFilter(f domain.ListFilter) (string, map[string]string, map[string]types.AttributeValue) {
	var clauses []string
	names := map[string]string{}
	values := map[string]types.AttributeValue{}

	if f.Status != nil {
		clauses = append(clauses, "#status = :status")
		names["#status"] = attrStatus
		values[":status"] = &types.AttributeValueMemberS{Value: f.Status.String()}
	}
	if f.Priority != nil {
		clauses = append(clauses, "#priority = :priority")
		names["#priority"] = attrPriority
		values[":priority"] = &types.AttributeValueMemberS{Value: f.Priority.String()}
	}
	if f.Tag != nil {
		clauses = append(clauses, "contains(#tags, :tag)")
		names["#tags"] = attrTags
		values[":tag"] = &types.AttributeValueMemberS{Value: *f.Tag}
	}

	if len(clauses) == 0 {
		return "", nil, nil
	}
	return strings.Join(clauses, " AND "), names, values
}

// buildUpdate renders a SET expression for the present fields plus
// updated_at, in a fixed attribute order.
func buildUpdate(f domain.FieldSet, now time.Time) (string, map[string]string, map[string]types.AttributeValue, error) {
	sets := []string{"#updated_at = :updated_at"}
	names := map[string]string{"#updated_at": attrUpdatedAt}
	values := map[string]types.AttributeValue{
		":updated_at": &types.AttributeValueMemberS{Value: domain.FormatTimestamp(now)},
	}

	set := func(attr string, v types.AttributeValue) {
		sets = append(sets, fmt.Sprintf("#%s = :%s", attr, attr))
		names["#"+attr] = attr
		values[":"+attr] = v
	}

	if f.Title != nil {
		set(attrTitle, &types.AttributeValueMemberS{Value: *f.Title})
	}
	if f.Description != nil {
		set(attrDescription, &types.AttributeValueMemberS{Value: *f.Description})
	}
	if f.Status != nil {
		set(attrStatus, &types.AttributeValueMemberS{Value: f.Status.String()})
	}
	if f.Priority != nil {
		set(attrPriority, &types.AttributeValueMemberS{Value: f.Priority.String()})
	}
	if f.DueDate != nil {
		set(attrDueDate, &types.AttributeValueMemberS{Value: domain.FormatTimestamp(*f.DueDate)})
	}
	if f.Tags != nil {
		tags, err := attributevalue.Marshal(nonNil(*f.Tags))
		if err != nil {
			return "", nil, nil, fmt.Errorf("marshal tags: %w", err)
		}
		set(attrTags, tags)
	}

	return "SET " + strings.Join(sets, ", "), names, values, nil
}

func clampLimit(limit int) int {
	return domain.ClampListLimit(limit)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("dynamo %s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
