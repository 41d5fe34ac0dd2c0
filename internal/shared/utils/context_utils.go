package utils

import (
	"context"
	"errors"

	"studio-cms/internal/shared/contextkeys"
)

// Common context errors
var (
	ErrRequestIDNotFound   = errors.New("requestID not found in context")
	ErrRequestIDNotString  = errors.New("requestID in context is not a string")
	ErrAdminUserNotFound   = errors.New("adminUser not found in context")
	ErrAdminUserNotString  = errors.New("adminUser in context is not a string")
	ErrCollectionNotFound  = errors.New("collection not found in context")
	ErrCollectionNotString = errors.New("collection in context is not a string")
)

func stringValue(ctx context.Context, key interface{}, missing, wrongType error) (string, error) {
	val := ctx.Value(key)
	if val == nil {
		return "", missing
	}
	s, ok := val.(string)
	if !ok {
		return "", wrongType
	}
	return s, nil
}

// GetRequestIDFromContext retrieves the request ID from the context.
// It returns an error if the request ID is not found or is not a string.
func GetRequestIDFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.RequestIDKey, ErrRequestIDNotFound, ErrRequestIDNotString)
}

// GetAdminUserFromContext retrieves the authenticated admin username.
func GetAdminUserFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.AdminUserKey, ErrAdminUserNotFound, ErrAdminUserNotString)
}

// GetCollectionFromContext retrieves the collection a request operates on.
func GetCollectionFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.CollectionKey, ErrCollectionNotFound, ErrCollectionNotString)
}

// Context setters

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextkeys.RequestIDKey, requestID)
}

func WithAdminUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, contextkeys.AdminUserKey, username)
}

func WithCollection(ctx context.Context, collection string) context.Context {
	return context.WithValue(ctx, contextkeys.CollectionKey, collection)
}

func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, contextkeys.ComponentKey, component)
}

func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, contextkeys.OperationKey, operation)
}

// GetAdminUserOrDefault returns the admin username or def when absent.
func GetAdminUserOrDefault(ctx context.Context, def string) string {
	if v, err := GetAdminUserFromContext(ctx); err == nil && v != "" {
		return v
	}
	return def
}

// HasAdminUser reports whether the request was authenticated
func HasAdminUser(ctx context.Context) bool {
	_, err := GetAdminUserFromContext(ctx)
	return err == nil
}
