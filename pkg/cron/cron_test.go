package cron

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 定义一个用于测试的简单任务函数
func testTask(context.Context) {}

func TestTaskManager_AddTask(t *testing.T) {
	assert := assert.New(t)

	manager := NewTaskManager()
	err := manager.AddTask("test_task", "0 0 * * *", testTask)
	assert.NoError(err)

	tasks := manager.ListTasks()
	assert.Len(tasks, 1)
	assert.Equal("test_task", tasks[0].Name)
	assert.False(tasks[0].NextRun.IsZero())

	// 重名
	assert.Error(manager.AddTask("test_task", "0 0 * * *", testTask))
}

func TestTaskManager_AddTaskDescriptor(t *testing.T) {
	manager := NewTaskManager()
	assert.NoError(t, manager.AddTask("every", "@every 30s", testTask))
	assert.Equal(t, StatusRunning, manager.GetTaskStatus("every"))
}

func TestTaskManager_RemoveTask(t *testing.T) {
	assert := assert.New(t)

	manager := NewTaskManager()
	err := manager.AddTask("test_task", "0 0 * * *", testTask)
	assert.NoError(err)

	manager.RemoveTask("test_task")
	assert.Len(manager.ListTasks(), 0)
	assert.Equal(StatusNotExist, manager.GetTaskStatus("test_task"))
}

func TestTaskManager_PauseResume(t *testing.T) {
	assert := assert.New(t)

	manager := NewTaskManager()
	var runs int32
	err := manager.AddTask("test_task", "0 0 * * *", func(context.Context) {
		atomic.AddInt32(&runs, 1)
	})
	assert.NoError(err)

	manager.PauseTask("test_task")
	assert.Equal(StatusPaused, manager.GetTaskStatus("test_task"))
	assert.NoError(manager.RunTask("test_task"))
	assert.Equal(int32(0), atomic.LoadInt32(&runs))

	manager.ResumeTask("test_task")
	assert.Equal(StatusRunning, manager.GetTaskStatus("test_task"))
	assert.NoError(manager.RunTask("test_task"))
	assert.Equal(int32(1), atomic.LoadInt32(&runs))
	assert.False(manager.ListTasks()[0].LastRun.IsZero())
}

func TestTaskManager_RunTaskUnknown(t *testing.T) {
	assert.Error(t, NewTaskManager().RunTask("missing"))
}

func TestTaskManager_StopCancelsContext(t *testing.T) {
	assert := assert.New(t)

	manager := NewTaskManager()
	var taskCtx context.Context
	assert.NoError(manager.AddTask("ctx_task", "0 0 * * *", func(ctx context.Context) {
		taskCtx = ctx
	}))
	assert.NoError(manager.RunTask("ctx_task"))

	manager.Start()
	manager.Stop()

	select {
	case <-taskCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("task context not cancelled")
	}
}

func TestTaskManager_ListTasksSorted(t *testing.T) {
	assert := assert.New(t)

	manager := NewTaskManager()
	assert.NoError(manager.AddTask("task_b", "30 0 * * *", testTask))
	assert.NoError(manager.AddTask("task_a", "0 0 * * *", testTask))

	tasks := manager.ListTasks()
	if assert.Len(tasks, 2) {
		assert.Equal("task_a", tasks[0].Name)
		assert.Equal("task_b", tasks[1].Name)
	}
}

func TestTaskManager_LoadTasksFromYAML(t *testing.T) {
	assert := assert.New(t)
	manager := NewTaskManager()
	registry := NewTaskRegistry()
	registry.Register("test_task", testTask)

	tmpFile, err := os.CreateTemp(t.TempDir(), "tasks.yaml")
	assert.NoError(err)

	_, err = tmpFile.Write([]byte(`
- name: test_task
  cron_expr: 0 0 * * *
`))
	assert.NoError(err)
	assert.NoError(tmpFile.Close())

	err = manager.LoadTasksFromYAML(tmpFile.Name(), registry)
	assert.NoError(err)
	assert.Len(manager.ListTasks(), 1)
}

func TestTaskManager_LoadTasks(t *testing.T) {
	registry := NewTaskRegistry()
	registry.Register("t1", testTask)
	registry.Register("t2", testTask)

	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		wantLen int
	}{
		{
			name:    "multiple",
			yaml:    "- name: t1\n  cron_expr: 0 0 * * *\n- name: t2\n  cron_expr: 30 0 * * *\n",
			wantLen: 2,
		},
		{
			name:    "disabled skipped",
			yaml:    "- name: t1\n  cron_expr: 0 0 * * *\n  disabled: true\n",
			wantLen: 0,
		},
		{
			name:    "unregistered skipped",
			yaml:    "- name: undefined_task\n  cron_expr: 0 0 * * *\n",
			wantLen: 0,
		},
		{
			name:    "invalid cron expr",
			yaml:    "- name: t1\n  cron_expr: invalid_cron_expr\n- name: t2\n  cron_expr: 0 0 * * *\n",
			wantErr: true,
			wantLen: 1,
		},
		{
			name:    "unknown field",
			yaml:    "- name: t1\n  cron_expr: 0 0 * * *\n  invalid_field: true\n",
			wantErr: true,
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewTaskManager()
			err := manager.LoadTasksFromYAMLBytes([]byte(tt.yaml), registry)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, manager.ListTasks(), tt.wantLen)
		})
	}
}

func TestTaskRegistry_Names(t *testing.T) {
	registry := NewTaskRegistry()
	registry.Register("b", testTask)
	registry.Register("a", testTask)
	assert.Equal(t, []string{"a", "b"}, registry.Names())
}
