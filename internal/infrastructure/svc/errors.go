package svc

import "errors"

// ErrNoFeedsRegistered 错误：一个价格源都没注册上
var ErrNoFeedsRegistered = errors.New("no price feeds registered")

// ErrStorageInitFailed 错误：存储初始化失败
var ErrStorageInitFailed = errors.New("storage initialization failed")
