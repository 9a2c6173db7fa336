package handlers

import "errors"

var errUnknownFrame = errors.New("未知的訊息類型")
