package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/keywordlab/internal/db"
)

// hsetIfScript: KEYS[1]=hash, ARGV[1]=guard field, ARGV[2]=n allowed,
// ARGV[3..2+n]=allowed values, rest=field/value pairs.
// Replies {-1,""} when the hash is missing, {0,cur} on guard mismatch, {1,cur} when written.
const hsetIfScript = `
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {-1, ''}
end
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if not cur then cur = '' end
local n = tonumber(ARGV[2])
local ok = false
for i = 3, 2 + n do
  if ARGV[i] == cur then
    ok = true
    break
  end
end
if not ok then
  return {0, cur}
end
if #ARGV > 2 + n then
  redis.call('HSET', KEYS[1], unpack(ARGV, 3 + n))
end
return {1, cur}
`

var hsetIf = rueidis.NewLuaScript(hsetIfScript)

// HSetIf writes fields to an existing hash when the guard field holds an allowed value.
func (s *Store) HSetIf(
	ctx context.Context, key, guardField string, allowed []string, fields map[string]string,
) (db.CondResult, error) {
	args := make([]string, 0, 2+len(allowed)+2*len(fields))
	args = append(args, guardField, strconv.Itoa(len(allowed)))
	args = append(args, allowed...)
	for k, v := range fields {
		args = append(args, k, v)
	}

	reply, err := hsetIf.Exec(ctx, s.client, []string{key}, args).ToArray()
	if err != nil {
		return db.CondResult{}, &db.Error{Op: db.OpHSetIf, Err: err}
	}
	if len(reply) != 2 {
		return db.CondResult{}, &db.Error{Op: db.OpHSetIf, Err: fmt.Errorf("unexpected reply length %d", len(reply))}
	}
	code, err := reply[0].AsInt64()
	if err != nil {
		return db.CondResult{}, &db.Error{Op: db.OpHSetIf, Err: err}
	}
	prev, err := reply[1].ToString()
	if err != nil {
		return db.CondResult{}, &db.Error{Op: db.OpHSetIf, Err: err}
	}

	switch code {
	case -1:
		return db.CondResult{}, db.ErrKeyNotFound
	case 0:
		return db.CondResult{Previous: prev}, nil
	default:
		return db.CondResult{Applied: true, Previous: prev}, nil
	}
}
