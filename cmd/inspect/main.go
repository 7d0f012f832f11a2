/*
 * @author: sun977
 * @date: 2025.11.10
 * @description: 主程序入口
 * @func: 初始化应用、启动后台协程与HTTP服务器、等待中断信号、优雅关闭
 */

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"neoinspect/internal/app/inspect"
	"neoinspect/internal/config"
)

func main() {
	// 加载.env文件，部署平台注入的环境变量优先
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 创建应用实例
	app, err := inspect.NewApp("", config.GetEnv())
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	// 启动后台协程(调度器、心跳、MQ订阅)
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	if err := app.Start(runCtx); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	// 获取配置和Gin引擎
	cfg := app.GetConfig()
	engine := app.GetRouter().GetEngine()

	// 创建HTTP服务器
	addr := cfg.Server.GetAddress()
	server := &http.Server{
		Addr:           addr,
		Handler:        engine,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// 启动服务器的goroutine
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待中断信号或MQ连接断开
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("Shutting down server...")
	case <-app.ConnectionLost():
		// 入站通道断开时退出，交给进程管理器重启
		log.Println("Message queue connection lost, shutting down...")
	}

	// 给服务器5秒钟的时间来完成现有请求
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// 停止后台协程并释放资源
	cancelRun()
	app.Stop()

	log.Println("Server exited")
}
