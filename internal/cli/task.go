package cli

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/transport/http/dto"
)

var (
	taskDescription string
	taskStatus      string
	taskPriority    string
	taskDue         string
	taskTags        []string
	taskTitle       string

	listStatus   string
	listPriority string
	listTag      string
	listLimit    string

	attachContentType string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create or manage tasks",
}

var taskCreateCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a new task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskCreate,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, newest first",
	RunE:  runTaskList,
}

var taskGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskGet,
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Change the fields given as flags",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskUpdate,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a task and its stored files",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

var taskRemindCmd = &cobra.Command{
	Use:   "remind [id]",
	Short: "Queue a reminder for an existing task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRemind,
}

var taskAttachCmd = &cobra.Command{
	Use:   "attach [id] [path]",
	Short: "Upload a local file and attach it to a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskAttach,
}

func init() {
	for _, c := range []*cobra.Command{taskCreateCmd, taskUpdateCmd} {
		c.Flags().StringVarP(&taskDescription, "desc", "d", "", "task description")
		c.Flags().StringVarP(&taskStatus, "status", "s", "", "status: pending, in_progress, completed, cancelled")
		c.Flags().StringVarP(&taskPriority, "priority", "p", "", "priority: low, medium, high, critical")
		c.Flags().StringVar(&taskDue, "due", "", "due date, RFC3339 or YYYY-MM-DD")
		c.Flags().StringSliceVarP(&taskTags, "tag", "t", nil, "tag, repeatable")
	}
	taskUpdateCmd.Flags().StringVar(&taskTitle, "title", "", "new title")

	taskListCmd.Flags().StringVar(&listStatus, "status", "", "only tasks with this status")
	taskListCmd.Flags().StringVar(&listPriority, "priority", "", "only tasks with this priority")
	taskListCmd.Flags().StringVar(&listTag, "tag", "", "only tasks carrying this tag")
	taskListCmd.Flags().StringVar(&listLimit, "limit", "", "maximum number of tasks")

	taskAttachCmd.Flags().StringVar(&attachContentType, "content-type", "", "MIME type, guessed from the extension when empty")

	taskCmd.AddCommand(taskCreateCmd, taskListCmd, taskGetCmd, taskUpdateCmd, taskDeleteCmd, taskRemindCmd, taskAttachCmd)
}

func optional(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

func runTaskCreate(cmd *cobra.Command, args []string) error {
	req := dto.CreateTaskRequest{
		Title:       args[0],
		Description: optional(cmd, "desc", taskDescription),
		Status:      taskStatus,
		Priority:    taskPriority,
		DueDate:     optional(cmd, "due", taskDue),
		Tags:        taskTags,
	}
	command, err := req.ToCommand()
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	task, err := s.components.Tasks.CreateTask(cmd.Context(), command)
	if err != nil {
		return err
	}
	return renderTask(cmd.OutOrStdout(), outputFormat, task)
}

func runTaskList(cmd *cobra.Command, args []string) error {
	filter, limit, err := dto.ParseListQuery(listStatus, listPriority, listTag, listLimit)
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	tasks, err := s.components.Tasks.ListTasks(cmd.Context(), filter, limit)
	if err != nil {
		return err
	}
	return renderTasks(cmd.OutOrStdout(), outputFormat, tasks)
}

func runTaskGet(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	task, err := s.components.Tasks.GetTask(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return renderTask(cmd.OutOrStdout(), outputFormat, task)
}

func runTaskUpdate(cmd *cobra.Command, args []string) error {
	req := dto.UpdateTaskRequest{
		Title:       optional(cmd, "title", taskTitle),
		Description: optional(cmd, "desc", taskDescription),
		Status:      optional(cmd, "status", taskStatus),
		Priority:    optional(cmd, "priority", taskPriority),
		DueDate:     optional(cmd, "due", taskDue),
	}
	if cmd.Flags().Changed("tag") {
		tags := append([]string{}, taskTags...)
		req.Tags = &tags
	}
	command, err := req.ToCommand()
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	task, err := s.components.Tasks.UpdateTask(cmd.Context(), args[0], command)
	if err != nil {
		return err
	}
	return renderTask(cmd.OutOrStdout(), outputFormat, task)
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	task, err := s.components.Tasks.DeleteTask(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s task '%s' deleted\n", styleOK.Render("✓"), task.Title)
	return nil
}

func runTaskRemind(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	task, err := s.components.Tasks.GetTask(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return enqueueReminder(cmd.Context(), s.components.Enqueuer, cmd.OutOrStdout(), task.ID)
}

func runTaskAttach(cmd *cobra.Command, args []string) error {
	path := args[1]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	contentType := attachContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	uploaded, err := s.components.Attachments.Upload(cmd.Context(), args[0], ports.UploadFileInput{
		ContentBase64: base64.StdEncoding.EncodeToString(data),
		FileName:      filepath.Base(path),
		ContentType:   contentType,
	})
	if err != nil {
		return err
	}
	return renderUpload(cmd.OutOrStdout(), outputFormat, uploaded)
}
