// Package api 處理 HTTP 請求路由和處理。
//
// 這個包包含了所有的 HTTP 處理器（handlers）。
// REST 部分負責註冊登入與房間列表，遊戲意圖本身走 WebSocket。
package api
