package repository

import (
	"context"
	"path"

	clientv3 "go.etcd.io/etcd/client/v3"
)

type EtcdInterface interface {
	clientv3.KV
	Close() error
}

// EtcdDisplayStore keeps display fields under <prefix>/<key>.
type EtcdDisplayStore struct {
	client EtcdInterface
	prefix string
}

func NewEtcdDisplayStore(client EtcdInterface, prefix string) *EtcdDisplayStore {
	if prefix == "" {
		prefix = "/storefront/display"
	}
	return &EtcdDisplayStore{client: client, prefix: prefix}
}

func (s *EtcdDisplayStore) key(k string) string {
	return path.Join(s.prefix, k)
}

func (s *EtcdDisplayStore) Get(ctx context.Context, key string) (string, error) {
	resp, err := s.client.Get(ctx, s.key(key))
	if err != nil {
		return "", err
	}
	if len(resp.Kvs) == 0 {
		return "", nil
	}
	return string(resp.Kvs[0].Value), nil
}

func (s *EtcdDisplayStore) Set(ctx context.Context, key, value string) error {
	_, err := s.client.Put(ctx, s.key(key), value)
	return err
}

// Delete removes all keys in one transaction so a reader never sees half a
// profile.
func (s *EtcdDisplayStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ops := make([]clientv3.Op, 0, len(keys))
	for _, k := range keys {
		ops = append(ops, clientv3.OpDelete(s.key(k)))
	}
	_, err := s.client.Txn(ctx).Then(ops...).Commit()
	return err
}

func (s *EtcdDisplayStore) Health(ctx context.Context) error {
	_, err := s.client.Get(ctx, s.key("health_check"))
	return err
}
