package cron

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// 任务状态
const (
	StatusRunning  = "running"
	StatusPaused   = "paused"
	StatusNotExist = "not exist"
)

// TaskFunc 任务处理函数，ctx 在任务管理器停止时取消
type TaskFunc func(ctx context.Context)

// TaskManager 定时任务管理器
type TaskManager struct {
	scheduler *cron.Cron
	tasks     map[string]*managedJob
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
}

// managedJob 自定义任务结构
type managedJob struct {
	entryID  cron.EntryID
	run      func()
	cronExpr string
	disabled bool
	lastRun  time.Time
}

// TaskInfo 任务信息
type TaskInfo struct {
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	CronExpr string    `json:"cron_expr"`
	NextRun  time.Time `json:"next_run"`
	LastRun  time.Time `json:"last_run"`
}

// cronLogger 把 robfig/cron 的日志转到 zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logger.Instance.Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.Instance.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}

// NewTaskManager 创建定时任务管理器，任务 panic 会被恢复，上一次未结束时跳过本次
func NewTaskManager() *TaskManager {
	l := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	return &TaskManager{
		scheduler: cron.New(
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		tasks:  make(map[string]*managedJob),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动所有任务
func (tm *TaskManager) Start() {
	tm.scheduler.Start()
	logger.Info(tm.ctx, "All scheduled tasks started")
}

// Stop 停止所有任务，等待正在执行的任务结束
func (tm *TaskManager) Stop() {
	tm.cancel()
	<-tm.scheduler.Stop().Done()
	logger.Info(context.Background(), "All scheduled tasks stopped")
}

// AddTask 添加定时任务
func (tm *TaskManager) AddTask(name, cronExpr string, task TaskFunc) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if _, exists := tm.tasks[name]; exists {
		return fmt.Errorf("task %s already exists", name)
	}

	job := &managedJob{cronExpr: cronExpr}
	// 包装任务以支持暂停
	job.run = func() {
		tm.mu.Lock()
		if job.disabled {
			tm.mu.Unlock()
			return
		}
		job.lastRun = time.Now()
		tm.mu.Unlock()

		task(logger.WithContext(tm.ctx, zap.String("task", name)))
	}

	entryID, err := tm.scheduler.AddFunc(cronExpr, job.run)
	if err != nil {
		return fmt.Errorf("failed to add task %s: %w", name, err)
	}
	job.entryID = entryID
	tm.tasks[name] = job

	logger.Info(tm.ctx, "Task added", zap.String("task", name), zap.String("cron_expr", cronExpr))
	return nil
}

// RunTask 立即执行一次任务（同步），暂停的任务不执行
func (tm *TaskManager) RunTask(name string) error {
	tm.mu.RLock()
	job, exists := tm.tasks[name]
	tm.mu.RUnlock()
	if !exists {
		return fmt.Errorf("task %s not exist", name)
	}
	job.run()
	return nil
}

// RemoveTask 移除定时任务
func (tm *TaskManager) RemoveTask(name string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if job, exists := tm.tasks[name]; exists {
		tm.scheduler.Remove(job.entryID)
		delete(tm.tasks, name)
		logger.Info(tm.ctx, "Task removed", zap.String("task", name))
	} else {
		logger.Warn(tm.ctx, "Attempt to remove non-existent task", zap.String("task", name))
	}
}

// PauseTask 暂停定时任务
func (tm *TaskManager) PauseTask(name string) {
	tm.setDisabled(name, true)
}

// ResumeTask 恢复定时任务
func (tm *TaskManager) ResumeTask(name string) {
	tm.setDisabled(name, false)
}

func (tm *TaskManager) setDisabled(name string, disabled bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	job, exists := tm.tasks[name]
	if !exists {
		logger.Warn(tm.ctx, "Attempt to change non-existent task", zap.String("task", name))
		return
	}
	job.disabled = disabled
	logger.Info(tm.ctx, "Task status changed", zap.String("task", name), zap.Bool("paused", disabled))
}

// GetTaskStatus 获取任务状态
func (tm *TaskManager) GetTaskStatus(name string) string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if job, exists := tm.tasks[name]; exists {
		if job.disabled {
			return StatusPaused
		}
		return StatusRunning
	}
	return StatusNotExist
}

// ListTasks 获取所有任务信息，按名称排序
func (tm *TaskManager) ListTasks() []TaskInfo {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	tasksInfo := make([]TaskInfo, 0, len(tm.tasks))
	for name, job := range tm.tasks {
		info := TaskInfo{
			Name:     name,
			Status:   StatusRunning,
			CronExpr: job.cronExpr,
			LastRun:  job.lastRun,
		}
		if job.disabled {
			info.Status = StatusPaused
		}
		if sched, err := cron.ParseStandard(job.cronExpr); err == nil {
			info.NextRun = sched.Next(time.Now())
		}
		tasksInfo = append(tasksInfo, info)
	}
	sort.Slice(tasksInfo, func(i, j int) bool { return tasksInfo[i].Name < tasksInfo[j].Name })
	return tasksInfo
}

// TaskConfig YAML配置中的单个任务结构
type TaskConfig struct {
	Name     string `yaml:"name"`
	CronExpr string `yaml:"cron_expr"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// TaskRegistry 任务注册表，用于映射任务名称到处理函数
type TaskRegistry struct {
	tasks map[string]TaskFunc
}

// NewTaskRegistry 创建任务注册表
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{
		tasks: make(map[string]TaskFunc),
	}
}

// Register 注册任务处理函数
func (tr *TaskRegistry) Register(name string, handler TaskFunc) {
	tr.tasks[name] = handler
}

// Names 已注册的任务名
func (tr *TaskRegistry) Names() []string {
	names := make([]string, 0, len(tr.tasks))
	for name := range tr.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadTasksFromYAML 从YAML文件加载任务
func (tm *TaskManager) LoadTasksFromYAML(filePath string, registry *TaskRegistry) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}

	return tm.LoadTasksFromYAMLBytes(data, registry)
}

// LoadTasksFromYAMLBytes 从YAML字节数据加载任务，未知字段视为错误
func (tm *TaskManager) LoadTasksFromYAMLBytes(data []byte, registry *TaskRegistry) error {
	var taskConfigs []TaskConfig

	if err := yaml.UnmarshalStrict(data, &taskConfigs); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return tm.LoadTasks(taskConfigs, registry)
}

// LoadTasks 加载任务配置。禁用和未注册的任务跳过，表达式错误的任务汇总后返回
func (tm *TaskManager) LoadTasks(taskConfigs []TaskConfig, registry *TaskRegistry) error {
	var result error
	for _, config := range taskConfigs {
		if config.Disabled {
			logger.Info(tm.ctx, "Skipping disabled task", zap.String("task", config.Name))
			continue
		}

		handler, exists := registry.tasks[config.Name]
		if !exists {
			logger.Warn(tm.ctx, "Task has no registered handler", zap.String("task", config.Name))
			continue
		}

		if err := tm.AddTask(config.Name, config.CronExpr, handler); err != nil {
			logger.Error(tm.ctx, "Failed to load task", zap.String("task", config.Name), zap.Error(err))
			result = multierror.Append(result, err)
		}
	}
	return result
}
