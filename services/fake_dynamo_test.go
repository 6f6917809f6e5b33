package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"eventure_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// tableKeys mirrors the key schema of the real tables.
var tableKeys = map[string][]string{
	models.UsersTable:    {"userId"},
	models.EventsTable:   {"eventId"},
	models.InvitesTable:  {"eventId", "phone"},
	models.GroupsTable:   {"userId", "groupId"},
	models.MessagesTable: {"eventId", "createdAt"},
}

// fakeDynamo is an in-memory DynamoAPI. It understands the expression shapes
// the services actually emit: single-equality key conditions, SET updates
// with optional if_not_exists, and exists/equality conditions joined by OR.
type fakeDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{tables: make(map[string]map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := f.tables[name]
	if !ok {
		t = make(map[string]map[string]types.AttributeValue)
		f.tables[name] = t
	}
	return t
}

func attrString(v types.AttributeValue) string {
	switch av := v.(type) {
	case *types.AttributeValueMemberS:
		return "S:" + av.Value
	case *types.AttributeValueMemberN:
		return "N:" + av.Value
	case *types.AttributeValueMemberBOOL:
		return fmt.Sprintf("B:%v", av.Value)
	default:
		return fmt.Sprintf("%#v", v)
	}
}

func attrEqual(a, b types.AttributeValue) bool {
	return attrString(a) == attrString(b)
}

func (f *fakeDynamo) keyString(tableName string, item map[string]types.AttributeValue) string {
	parts := make([]string, 0, 2)
	for _, k := range tableKeys[tableName] {
		parts = append(parts, attrString(item[k]))
	}
	return strings.Join(parts, "|")
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

// seed stores a marshalled struct directly, bypassing the services.
func (f *fakeDynamo) seed(tableName string, item interface{}) {
	attrs, err := attributevalue.MarshalMap(item)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table(tableName)[f.keyString(tableName, attrs)] = attrs
}

func (f *fakeDynamo) count(tableName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.table(tableName))
}

func (f *fakeDynamo) PutItem(ctx context.Context, tableName string, item interface{}) error {
	f.seed(tableName, item)
	return nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.table(tableName)[f.keyString(tableName, key)]
	if !ok {
		return nil, nil
	}
	return copyItem(item), nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.table(tableName), f.keyString(tableName, key))
	return nil
}

// resolveName maps a possibly-aliased attribute (#status) to its real name.
func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		if real, ok := names[name]; ok {
			return real
		}
	}
	return name
}

// splitClauses splits "a = :a, b = if_not_exists(b, :b)" on commas outside
// parentheses.
func splitClauses(s string) []string {
	var clauses []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				clauses = append(clauses, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	clauses = append(clauses, strings.TrimSpace(s[start:]))
	return clauses
}

func evalCondition(condition string, item map[string]types.AttributeValue, exists bool, values map[string]types.AttributeValue, names map[string]string) bool {
	for _, term := range strings.Split(condition, " OR ") {
		term = strings.TrimSpace(term)
		switch {
		case strings.HasPrefix(term, "attribute_not_exists("):
			if !exists {
				return true
			}
		case strings.HasPrefix(term, "attribute_exists("):
			if exists {
				return true
			}
		case strings.Contains(term, " = "):
			if !exists {
				continue
			}
			parts := strings.SplitN(term, " = ", 2)
			attr := item[resolveName(strings.TrimSpace(parts[0]), names)]
			want := values[strings.TrimSpace(parts[1])]
			if attr != nil && want != nil && attrEqual(attr, want) {
				return true
			}
		}
	}
	return false
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, tableName, updateExpression, conditionExpression string, key map[string]types.AttributeValue, values map[string]types.AttributeValue, names map[string]string) (map[string]types.AttributeValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := f.table(tableName)
	ks := f.keyString(tableName, key)
	item, exists := t[ks]

	if conditionExpression != "" && !evalCondition(conditionExpression, item, exists, values, names) {
		return nil, fmt.Errorf("update of item in table '%s': %w", tableName, ErrConditionFailed)
	}

	if !exists {
		item = copyItem(key)
	} else {
		item = copyItem(item)
	}

	if !strings.HasPrefix(updateExpression, "SET ") {
		return nil, fmt.Errorf("fake dynamo: unsupported update %q", updateExpression)
	}
	for _, clause := range splitClauses(strings.TrimPrefix(updateExpression, "SET ")) {
		parts := strings.SplitN(clause, " = ", 2)
		target := resolveName(strings.TrimSpace(parts[0]), names)
		expr := strings.TrimSpace(parts[1])

		if strings.HasPrefix(expr, "if_not_exists(") {
			args := strings.TrimSuffix(strings.TrimPrefix(expr, "if_not_exists("), ")")
			argParts := strings.SplitN(args, ",", 2)
			attr := resolveName(strings.TrimSpace(argParts[0]), names)
			if existing, ok := item[attr]; ok {
				item[target] = existing
			} else {
				item[target] = values[strings.TrimSpace(argParts[1])]
			}
			continue
		}
		item[target] = values[expr]
	}

	t[ks] = item
	return copyItem(item), nil
}

func (f *fakeDynamo) query(tableName, keyCondition string, values map[string]types.AttributeValue, names map[string]string) []map[string]types.AttributeValue {
	parts := strings.SplitN(keyCondition, " = ", 2)
	attr := resolveName(strings.TrimSpace(parts[0]), names)
	want := values[strings.TrimSpace(parts[1])]

	var items []map[string]types.AttributeValue
	for _, item := range f.table(tableName) {
		if v, ok := item[attr]; ok && attrEqual(v, want) {
			items = append(items, copyItem(item))
		}
	}
	return items
}

func limitItems(items []map[string]types.AttributeValue, limit int32) []map[string]types.AttributeValue {
	if limit > 0 && int32(len(items)) > limit {
		return items[:limit]
	}
	return items
}

func (f *fakeDynamo) QueryItems(ctx context.Context, tableName, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32) ([]map[string]types.AttributeValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return limitItems(f.query(tableName, keyCondition, values, names), limit), nil
}

func (f *fakeDynamo) QueryItemsWithIndex(ctx context.Context, tableName, indexName, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32) ([]map[string]types.AttributeValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return limitItems(f.query(tableName, keyCondition, values, names), limit), nil
}

func (f *fakeDynamo) QueryItemsWithOptions(ctx context.Context, tableName, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32, latestFirst bool) ([]map[string]types.AttributeValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.query(tableName, keyCondition, values, names)
	sortKey := tableKeys[tableName][1]
	sort.Slice(items, func(i, j int) bool {
		less := attrString(items[i][sortKey]) < attrString(items[j][sortKey])
		if latestFirst {
			return !less
		}
		return less
	})
	return limitItems(items, limit), nil
}

func (f *fakeDynamo) BatchWriteItems(ctx context.Context, tableName string, writeRequests []types.WriteRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := f.table(tableName)
	for _, wr := range writeRequests {
		if wr.DeleteRequest != nil {
			delete(t, f.keyString(tableName, wr.DeleteRequest.Key))
		}
		if wr.PutRequest != nil {
			t[f.keyString(tableName, wr.PutRequest.Item)] = copyItem(wr.PutRequest.Item)
		}
	}
	return nil
}
